/*
Package service provides standard configuration and utilities for a service.

Services contain a cli (cobra.Command), an http server (mux.Router) guarded by a
CORS policy, and a metrics interface (prometheus.Registerer).
*/
package service
