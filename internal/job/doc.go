// Package job defines the extraction job record and its lifecycle rules.
//
// A record moves queued -> processing -> completed | failed. Completed and
// failed are terminal; the mutation helpers refuse any further transition
// once a terminal status is reached, and Progress is only ever advanced,
// never rewound. Treat this package as the single source of truth for job
// semantics: every store and service shares these invariants.
package job
