package sweeper

import "time"

// Clock abstrae el tiempo para que los tests simulen saltos sin dormir.
type Clock interface {
	Now() time.Time
	// After se comporta como time.After.
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock retorna el reloj del sistema.
func RealClock() Clock { return realClock{} }
