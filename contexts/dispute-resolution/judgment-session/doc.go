// Package judgmentsession implements the judgment commission inside the
// dispute-resolution context.
//
// Cases are judged in sessions of a commission. A session opens only with a
// quorum of ceil(active/2) present active members, and each present member
// casts at most one vote per case. A case resolves by simple majority of
// grant over deny votes; a tie is decided by the present President acting as
// tie-breaker. Members who never voted before the case's deadline are
// recorded as abstentions. Verdicts are immutable and content-stamped; an
// appeal opens a new case that references the decided one.
//
// Every verdict is published as judgment.verdict_finalized through the
// outbox so the election context can apply its remedy.
package judgmentsession
