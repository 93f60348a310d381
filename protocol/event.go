// Package protocol implements the event model for the Showdown sim
// protocol: a closed enumeration of message kinds plus a decoder that
// turns pipe-delimited wire lines into typed, immutable events.
package protocol

// EventKind identifies the type discriminant of a protocol message.
type EventKind uint8

const (
	// Unknown is a well-formed message whose type string is not part of
	// the closed set below. Unknown events still carry their args and
	// are consumed (and ignored) by the dispatcher's default handler.
	Unknown EventKind = iota

	// Raw is a non-message line (server log output, HTML fragments).
	Raw

	// Global / lobby messages.
	ChallStr
	UpdateUser
	PM
	Popup

	// Room lifecycle.
	Init
	Title
	DeInit
	Join
	Leave
	Chat
	ChatTS

	// Battle preamble.
	Player
	TeamSize
	GameType
	Gen
	Tier
	Rated
	Rule
	Start

	// Battle flow.
	Turn
	Upkeep
	Request
	Move
	Switch
	Drag
	Cant
	Faint
	Win
	Tie
	Error

	// Minor (effect) messages.
	MinorDamage
	MinorHeal
	MinorStatus
	MinorCureStatus
	MinorBoost
	MinorUnboost
	MinorAbility
	MinorItem
	MinorEndItem
	MinorWeather
	MinorFail
	MinorImmune
	MinorMiss
	MinorCrit
	MinorSuperEffective
	MinorResisted
	MinorActivate
	MinorStart
	MinorEnd

	numKinds // sentinel, keep last
)

// kindNames maps each EventKind to its wire string.
var kindNames = [numKinds]string{
	Unknown:             "",
	Raw:                 "raw",
	ChallStr:            "challstr",
	UpdateUser:          "updateuser",
	PM:                  "pm",
	Popup:               "popup",
	Init:                "init",
	Title:               "title",
	DeInit:              "deinit",
	Join:                "j",
	Leave:               "l",
	Chat:                "c",
	ChatTS:              "c:",
	Player:              "player",
	TeamSize:            "teamsize",
	GameType:            "gametype",
	Gen:                 "gen",
	Tier:                "tier",
	Rated:               "rated",
	Rule:                "rule",
	Start:               "start",
	Turn:                "turn",
	Upkeep:              "upkeep",
	Request:             "request",
	Move:                "move",
	Switch:              "switch",
	Drag:                "drag",
	Cant:                "cant",
	Faint:               "faint",
	Win:                 "win",
	Tie:                 "tie",
	Error:               "error",
	MinorDamage:         "-damage",
	MinorHeal:           "-heal",
	MinorStatus:         "-status",
	MinorCureStatus:     "-curestatus",
	MinorBoost:          "-boost",
	MinorUnboost:        "-unboost",
	MinorAbility:        "-ability",
	MinorItem:           "-item",
	MinorEndItem:        "-enditem",
	MinorWeather:        "-weather",
	MinorFail:           "-fail",
	MinorImmune:         "-immune",
	MinorMiss:           "-miss",
	MinorCrit:           "-crit",
	MinorSuperEffective: "-supereffective",
	MinorResisted:       "-resisted",
	MinorActivate:       "-activate",
	MinorStart:          "-start",
	MinorEnd:            "-end",
}

// kindByName is the inverse of kindNames, with wire aliases included.
var kindByName = func() map[string]EventKind {
	m := make(map[string]EventKind, int(numKinds)+4)
	for k := EventKind(1); k < numKinds; k++ {
		m[kindNames[k]] = k
	}
	// Long-form aliases used by some server versions.
	m["join"] = Join
	m["leave"] = Leave
	m["chat"] = Chat
	m["switchin"] = Switch
	return m
}()

// KindOf returns the EventKind for a wire type string. Unrecognized
// strings map to Unknown.
func KindOf(name string) EventKind {
	if k, ok := kindByName[name]; ok {
		return k
	}
	return Unknown
}

// String returns the wire type string for the kind.
func (k EventKind) String() string {
	if k < numKinds && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// IsMinor reports whether the kind is an effect (dash-prefixed) message.
func (k EventKind) IsMinor() bool {
	return k >= MinorDamage && k <= MinorEnd
}

// Event is one decoded protocol message. It is immutable by
// convention: decode once, consume exactly once, never mutate.
type Event struct {
	Kind EventKind
	// Args holds the positional arguments in wire order, excluding
	// keyword-argument tail entries.
	Args []string
	// KwArgs holds the trailing bracketed arguments, e.g.
	// "[from] ability: Intimidate" decodes to {"from": "ability: Intimidate"}.
	// Nil when the message carried none.
	KwArgs map[string]string
}

// Arg returns the positional argument at i, or "" when absent.
func (e Event) Arg(i int) string {
	if i < 0 || i >= len(e.Args) {
		return ""
	}
	return e.Args[i]
}

// KwArg returns the keyword argument for key and whether it was present.
func (e Event) KwArg(key string) (string, bool) {
	v, ok := e.KwArgs[key]
	return v, ok
}
