package version

const Value = "0.3.0"

// UserAgent is sent with every request the fetch layer makes.
func UserAgent() string {
	return "verid/" + Value + " (version identification)"
}
