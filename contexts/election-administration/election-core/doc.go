// Package electioncore implements the electoral lifecycle inside the
// election-administration context.
//
// The module owns the election phase machine, the eligibility registry of
// each election, slate registration, ballot casting and the tallying engine.
// Ballots are stored without voter identities: the registry only records that
// a voter has voted, and the ballot carries an election-scoped voter hash.
// Casting commits the has-voted flag and the ballot insert as one atomic unit
// in the storage adapters. Tally runs are immutable versions whose input and
// result hashes can be recomputed from stored ballots at any time.
//
// Remedies decided by the judgment context arrive as
// judgment.verdict_finalized events and are applied by the verdict consumer.
package electioncore
