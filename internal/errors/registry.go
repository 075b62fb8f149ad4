package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Config (T100-T119)
	"T100": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "tabledash looks for tabledash.json in the working directory and its parents.",
	},
	"T101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "A value in tabledash.json is out of range or has the wrong type.",
	},
	"T102": {
		Category: CategoryConfig,
		Message:  "Config file unreadable",
		Detail:   "tabledash.json exists but could not be read or parsed.",
	},
	"T103": {
		Category: CategoryConfig,
		Message:  "Column metadata invalid",
		Detail:   "The column definitions could not be loaded.",
	},

	// Fetch (T120-T139)
	"T120": {
		Category: CategoryFetch,
		Message:  "Remote request failed",
		Detail:   "The users API could not be reached or returned an error status.",
	},
	"T121": {
		Category: CategoryFetch,
		Message:  "Remote response malformed",
		Detail:   "The users API returned a body that is not a JSON array of records.",
	},

	// Codec (T140-T159)
	"T140": {
		Category: CategoryCodec,
		Message:  "Unknown filter column",
		Detail:   "A filter or sort references a column that is not rendered.",
	},
	"T141": {
		Category: CategoryCodec,
		Message:  "Unknown filter operator",
		Detail:   "Operators are limited to like, eq, gt, lt, gte and lte.",
	},

	// Protocol (T160-T179)
	"T160": {
		Category: CategoryProtocol,
		Message:  "Malformed live event",
		Detail:   "The browser sent a frame that is not a valid table event.",
	},
	"T161": {
		Category: CategoryProtocol,
		Message:  "Live connection failed",
		Detail:   "The WebSocket upgrade or handshake did not complete.",
	},

	// CLI (T180-T199)
	"T180": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
