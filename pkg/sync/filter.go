package sync

// FilterArgs converts a submodule's filter rules into rsync arguments.
//
// rsync applies the first rule that matches a path, so the order of the
// returned arguments is significant: every include rule comes first, in its
// configured order, followed by every exclude rule. Rules are never
// deduplicated or merged.
func FilterArgs(include, exclude []string) []string {
	args := make([]string, 0, len(include)+len(exclude))
	for _, pattern := range include {
		args = append(args, "--include="+pattern)
	}
	for _, pattern := range exclude {
		args = append(args, "--exclude="+pattern)
	}
	return args
}
