package negotiation

// Inform is a closed union of the events a party can receive from the turn
// protocol. Parties handle it with a type switch; the concrete types below
// are the only implementations.
type Inform interface {
	informEvent()
}

// Settings is the first event of a session and carries everything the party
// needs for the rest of it.
type Settings struct {
	PartyID    string
	Profile    *Profile
	Progress   *Progress
	Parameters map[string]string
}

// OpponentOffer notifies the party of a bid offered by its opponent.
type OpponentOffer struct {
	Bid Bid
}

// YourTurn gives the party the floor. The party must answer with exactly one
// Action: an Offer or an Accept.
type YourTurn struct{}

// Finished signals the end of the session. Agreement is nil when the session
// ended without one. No further events follow.
type Finished struct {
	Agreement Bid
}

func (Settings) informEvent()      {}
func (OpponentOffer) informEvent() {}
func (YourTurn) informEvent()      {}
func (Finished) informEvent()      {}

// Action is a closed union of the decisions a party can answer a YourTurn
// with.
type Action interface {
	actionEvent()
}

// Offer proposes a bid to the opponent.
type Offer struct {
	Actor string
	Bid   Bid
}

// Accept accepts the opponent's last offer, ending the session with an
// agreement.
type Accept struct {
	Actor string
	Bid   Bid
}

func (Offer) actionEvent()  {}
func (Accept) actionEvent() {}

// Party is a negotiating participant driven by protocol events. Notify
// returns a non-nil Action only in response to YourTurn.
type Party interface {
	Name() string
	Notify(inform Inform) Action
}
