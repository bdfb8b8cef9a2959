/*
Package observability provides monitoring for the boletim engine.

It turns lifecycle hooks into Prometheus metrics and structured log lines,
and combines several hook sets into one.
*/
package observability
