package output

type Options struct {
	PrintRequestHeader  bool
	PrintRequestBody    bool
	PrintResponseHeader bool
	PrintResponseBody   bool

	EnableColor bool

	// SecretHeaders are masked in addition to the standard credential
	// headers.
	SecretHeaders []string

	Download   bool
	OutputFile string
	Overwrite  bool
}
