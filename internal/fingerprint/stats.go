package fingerprint

import "github.com/MOYARU/verid/internal/versionid"

// Stats summarises a collection for `verid dbinfo` and the API.
type Stats struct {
	Key        string `json:"key"`
	Producer   string `json:"producer"`
	HashAlgo   string `json:"hash_algo"`
	Files      int    `json:"files"`
	Signatures int    `json:"signatures"`
	Versions   int    `json:"versions"`
	Oldest     string `json:"oldest,omitempty"`
	Newest     string `json:"newest,omitempty"`
}

func Summarize(c *versionid.Collection) Stats {
	st := Stats{
		Key:      c.Key,
		Producer: c.Producer,
		HashAlgo: c.Algo(),
		Files:    len(c.Files),
	}
	for _, rec := range c.Files {
		st.Signatures += len(rec.Signatures)
	}
	all := c.Versions()
	st.Versions = all.Len()
	st.Oldest = versionid.Lowest(all)
	st.Newest = versionid.Highest(all)
	return st
}
