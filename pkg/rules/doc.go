/*
Package rules implements the answer validation rules of the interview engine.

A RuleSet is compiled once from declarative domain.Rule values and evaluated
as a logical AND: rules run in declaration order and the first failing rule's
message is surfaced verbatim. An empty answer (after trimming) always fails
with the required-answer message, whatever the configured rules are.

Evaluation is pure and deterministic; every configuration problem is
reported by Compile, never at evaluation time.
*/
package rules
