// Moderation-and-economy engine for chat communities (the "swear jar").
//
// This package (`github.com/thiccolasscage/sorrynotsorry69/jar`) holds the types shared by every sub-package: incoming message events, the subjects that punitive actions are applied to, and the error taxonomy surfaced to callers. The moving parts live in sub-packages: lexicons and the policy classifier, the per-user ledger, the enforcement scheduler that applies and reverts mutes, the shop economy, and the engine which ties a message stream to all of them.
//
// See `cmd/swearjar` for a daemon built on these packages.
package jar
