// Package app contains the frame controller: the use case that connects the
// host page, the sandboxed emulator module and the blob store.
package app
