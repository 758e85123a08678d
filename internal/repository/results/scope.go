package results

func quoteIdent(ident string) string {
	// idents are validated upstream to contain no quotes; safe to wrap
	return `"` + ident + `"`
}
