package query

// Option adjusts how a single query execution is performed and logged.
type Option func(*execOptions)

type execOptions struct {
	save        bool
	user        string
	reference   string
	searchTerms string
}

func defaultOptions() execOptions {
	return execOptions{save: true}
}

// WithoutSave executes the query without persisting a log entry.
func WithoutSave() Option {
	return func(o *execOptions) { o.save = false }
}

// WithUser attributes the query to a user.
func WithUser(user string) Option {
	return func(o *execOptions) { o.user = user }
}

// WithReference tags the query with a caller-defined reference.
func WithReference(ref string) Option {
	return func(o *execOptions) { o.reference = ref }
}

// WithSearchTerms records the raw user input the query was built from.
func WithSearchTerms(terms string) Option {
	return func(o *execOptions) { o.searchTerms = terms }
}
