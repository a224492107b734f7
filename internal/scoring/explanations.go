package scoring

// methodologyNotes state how each factor's data is sourced. Every report
// carries them so a score can be read without the source at hand.
var methodologyNotes = []string{
	"Ownership via BscScan ABI; renounced if owner() == 0x0",
	"Pancake v2 pair via factory.getPair(token, WBNB/USDT)",
	"Pancake v3 pool via factory.getPool(token, WBNB/USDT, fee)",
	"Supply & burn via ERC-20 totalSupply()/balanceOf(dead)",
	"Top holders via BscScan tokenholderlist (best-effort)",
	"LP lock via v2 LP ERC-20 balances held by known lockers",
}

// Explanations returns a fresh copy of the methodology notes.
func Explanations() []string {
	return append([]string(nil), methodologyNotes...)
}
