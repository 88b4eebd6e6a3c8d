package livetest

// moduleKeyViaHelper calls moduleKey the way a helper wrapping LiveServer
// from another file would.
func moduleKeyViaHelper() string {
	return liveServerFrame()
}

// liveServerFrame stands in for LiveServer on the stack.
func liveServerFrame() string {
	return moduleKey()
}
