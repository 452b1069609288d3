package config

//Options represents the game's configurable options
type Options struct {
	Length    int    //initial snake length
	Eggs      int    //number of eggs on the grid
	Grow      bool   //growth flag, reported but inert
	Transport string //where LogEvent signals go
	LogFile   string //file for the file transport and the diagnostics
	Sound     bool   //play a blip when an egg is eaten
}

//MonitorOptions represents the options of the event monitor
type MonitorOptions struct {
	Plain   bool
	History int
}

//default options
const (
	DefLength    = 8
	MaxLength    = 16
	DefEggs      = 255
	MaxEggs      = 254
	DefStartX    = 8
	DefStartY    = 4
	DefHistory   = 500
	DefTransport = TransportDBus
)

//transports
const (
	TransportDBus = "dbus"
	TransportFile = "file"
	TransportNone = "none"
)

var Transports = []string{TransportDBus, TransportFile, TransportNone}

var DefaultOptions = Options{
	Length:    DefLength,
	Eggs:      DefEggs,
	Transport: DefTransport,
}

var DefaultMonitorOptions = MonitorOptions{
	History: DefHistory,
}

//Normalize replaces out of range values with the defaults
//a length is accepted in 1..16, an egg count in 1..254
func (o *Options) Normalize() {
	if o.Length < 1 || o.Length > MaxLength {
		o.Length = DefLength
	}
	if o.Eggs < 1 || o.Eggs > MaxEggs {
		o.Eggs = DefEggs
	}
	if !ValidTransport(o.Transport) {
		o.Transport = DefTransport
	}
}

func ValidTransport(name string) bool {
	for _, t := range Transports {
		if t == name {
			return true
		}
	}
	return false
}
