// Package middlewares contiene los decoradores http.Handler del servicio:
// request ID, logging estructurado, recover, security headers, rate limiting
// y autenticación por credencial access.
//
// El router compone la cadena con chi; Chain existe para componer fuera de
// un router (tests, handlers sueltos).
package middlewares

import "net/http"

// Middleware es un decorador de http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain envuelve h con los middlewares dados. El primero de la lista es el
// más externo: intercepta el request antes y la respuesta después que el
// resto.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
