// Package async provides utilities for parallel task execution with
// error collection.
//
// [RunParallel] executes multiple operations concurrently and returns all
// errors joined. It fans remote commands out across cluster nodes.
package async
