package querycontext

type usState struct {
	name string
	abbr string
}

// states is the fixed lookup table of markets the dataset covers.
var states = []usState{
	{"texas", "tx"},
	{"california", "ca"},
	{"new york", "ny"},
	{"florida", "fl"},
	{"illinois", "il"},
	{"washington", "wa"},
	{"massachusetts", "ma"},
	{"arizona", "az"},
	{"colorado", "co"},
	{"utah", "ut"},
	{"georgia", "ga"},
	{"north carolina", "nc"},
	{"ohio", "oh"},
	{"pennsylvania", "pa"},
	{"nevada", "nv"},
	{"oregon", "or"},
	{"missouri", "mo"},
	{"tennessee", "tn"},
	{"maryland", "md"},
	{"minnesota", "mn"},
}
