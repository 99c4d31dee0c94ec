// Package campaign defines the data model shared by every stage of the hype
// pipeline. Each type is produced by exactly one pipeline stage and flows
// single-owner to the next: the scanner produces Events, the analyzer wraps
// them into ScoredEvents, the creative stages add briefs and assets, and the
// orchestrator seals everything into an immutable CampaignPackage.
//
// All types carry JSON tags because they cross three boundaries: the package
// files written to disk, the Redis run ledger, and the SQLite archive.
package campaign
