// Package training coordinates asynchronous index rebuilds. Each rebuild
// is a full pass over a tenant's parsed documents: chunk, embed, build a
// new index version, persist it, publish it. One active job per tenant;
// a concurrent start request is a conflict, not a silent enqueue. A job
// that fails at any step leaves the previously published version fully
// serviceable.
package training
