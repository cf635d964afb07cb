// Offense counters, bucketed by period (total, day, hour).
//
// The engine increments a counter per finding kind and user after each processed message, and tracks the distinct set of offenders per kind. Counts are informational; balances and warnings live in the ledger.
package countstore
