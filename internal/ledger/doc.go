// Package ledger persists counted collection failures in SQLite so a
// follow-up run can retry them. Each row records the accession, the pipeline
// stage that failed, and the reason; the collect command can replay the
// ledger as a worklist.
package ledger
