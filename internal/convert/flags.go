package convert

// Flags is a go-flags option group that adjusts Options from the command line.
// Unset flags keep the base value, normally taken from the config file.
type Flags struct {
	Types        []string `short:"t" long:"type"          description:"Element type to convert, repeatable (all when omitted)" choice:"waypoint" choice:"route" choice:"track"`
	NoElevation  bool     `long:"no-elevation"            description:"Drop elevation from coordinates"`
	NoTime       bool     `long:"no-time"                 description:"Drop time properties"`
	NoMetadata   bool     `long:"no-metadata"             description:"Drop name, description and other descriptive properties"`
	JoinSegments bool     `short:"j" long:"join-segments" description:"Emit one MultiLineString per track"`
}

// Apply returns base with the flags layered on top.
func (f *Flags) Apply(base Options) (Options, error) {
	opts := base

	if len(f.Types) > 0 {
		types, err := ParseElementTypes(f.Types)
		if err != nil {
			return base, err
		}
		opts.Types = types
	}
	if f.NoElevation {
		opts.IncludeElevation = false
	}
	if f.NoTime {
		opts.IncludeTime = false
	}
	if f.NoMetadata {
		opts.IncludeMetadata = false
	}
	if f.JoinSegments {
		opts.JoinTrackSegments = true
	}

	return opts, nil
}
