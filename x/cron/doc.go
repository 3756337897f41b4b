/*
Package cron implements a time ordered queue of messages executed at the
beginning of a block.

The Scheduler stores a message together with the authentication conditions
it should run with. The Ticker executes every task whose time has come, each
in its own cache wrap, and stores a TaskResult under the task ID. A failing
task is recorded as unsuccessful and its changes are discarded; other tasks
and the block are not affected.
*/
package cron
