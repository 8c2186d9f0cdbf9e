// Package repository define las interfaces de repositorio de dominio.
//
// Estas interfaces representan contratos de negocio, independientes del
// almacenamiento subyacente (PostgreSQL, memoria, etc.).
//
// Las implementaciones concretas viven en internal/store/.
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Toda operación es de fila única y atómica salvo que se indique lo contrario
//   - Errores de dominio están en errors.go
package repository
