package game

const (
	DeckSize = 36
	MaxSlots = 6
)

// FullDeck returns every card of the 36-card deck, suit by suit, weakest rank first.
func FullDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for s := Hearts; s <= Spades; s++ {
		for r := Six; r <= Ace; r++ {
			cards = append(cards, Card{Suit: s, Rank: r})
		}
	}
	return cards
}
