// Package compute acquires the instances of a new cluster.
//
// Instances are obtained in one batch, either with a single RunInstances call
// or with one spot request for the whole cluster. Every acquisition pushes its
// undo action on the rollback stack before anything else can fail. Newly
// created instances are then given time to become describable, and the first
// one is tagged master, the rest workers, with one CreateTags call per role.
package compute
