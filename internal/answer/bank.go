package answer

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

type BankOp string

const (
	BankAssign BankOp = "assign"
	BankClear  BankOp = "clear"
	BankMove   BankOp = "move"
	BankTap    BankOp = "tap"
)

// BankChange is emitted to subscribers after every state-changing bank
// operation. SlotValues and BankOrder are copies.
type BankChange struct {
	Op         BankOp
	SlotID     string
	TokenID    string
	SlotValues map[string]string
	BankOrder  []string
	ActiveSlot string
}

// WordBank coordinates the distribution of bank tokens into the blanks of a
// fill_blank_word_bank exercise. Tokens are tracked by id, so two tokens with
// the same text are distinct. Every token is either in exactly one slot or in
// the bank.
type WordBank struct {
	model      *models.WordBankFillModel
	slotValues map[string]string
	bankOrder  []string
	activeSlot string

	listeners map[int]func(BankChange)
	nextID    int
}

func newWordBank(m *models.WordBankFillModel, snap *models.AnswerSnapshot, rng *rand.Rand) *WordBank {
	b := &WordBank{
		model:      m,
		slotValues: make(map[string]string),
		listeners:  make(map[int]func(BankChange)),
	}

	if snap == nil {
		b.bankOrder = make([]string, len(m.BankTokens))
		for i, tok := range m.BankTokens {
			b.bankOrder[i] = tok.ID
		}
		shuffle(rng, len(b.bankOrder), func(i, j int) {
			b.bankOrder[i], b.bankOrder[j] = b.bankOrder[j], b.bankOrder[i]
		})
		return b
	}

	placed := make(map[string]bool)
	for _, blank := range m.Blanks {
		tokenID, ok := snap.SlotValues[blank.ID]
		if !ok || !b.knownToken(tokenID) || placed[tokenID] {
			continue
		}
		b.slotValues[blank.ID] = tokenID
		placed[tokenID] = true
	}
	for _, tokenID := range snap.BankOrder {
		if b.knownToken(tokenID) && !placed[tokenID] {
			b.bankOrder = append(b.bankOrder, tokenID)
			placed[tokenID] = true
		}
	}
	// Tokens added to the exercise after the snapshot was taken.
	for _, tok := range m.BankTokens {
		if !placed[tok.ID] {
			b.bankOrder = append(b.bankOrder, tok.ID)
			placed[tok.ID] = true
		}
	}
	if b.knownSlot(snap.ActiveSlot) {
		if _, filled := b.slotValues[snap.ActiveSlot]; !filled {
			b.activeSlot = snap.ActiveSlot
		}
	}
	return b
}

func (b *WordBank) knownToken(id string) bool {
	for _, tok := range b.model.BankTokens {
		if tok.ID == id {
			return true
		}
	}
	return false
}

func (b *WordBank) knownSlot(id string) bool {
	for _, blank := range b.model.Blanks {
		if blank.ID == id {
			return true
		}
	}
	return false
}

// OnChange registers a listener and returns a function that removes it.
func (b *WordBank) OnChange(fn func(BankChange)) func() {
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	return func() { delete(b.listeners, id) }
}

func (b *WordBank) emit(op BankOp, slotID, tokenID string) {
	if len(b.listeners) == 0 {
		return
	}
	change := BankChange{
		Op:         op,
		SlotID:     slotID,
		TokenID:    tokenID,
		SlotValues: b.SlotValues(),
		BankOrder:  b.BankOrder(),
		ActiveSlot: b.activeSlot,
	}
	for _, id := range slices.Sorted(maps.Keys(b.listeners)) {
		b.listeners[id](change)
	}
}

func (b *WordBank) SlotValues() map[string]string {
	return maps.Clone(b.slotValues)
}

func (b *WordBank) BankOrder() []string {
	return slices.Clone(b.bankOrder)
}

func (b *WordBank) ActiveSlot() string {
	return b.activeSlot
}

// SlotOf reports the slot currently holding a token.
func (b *WordBank) SlotOf(tokenID string) (string, bool) {
	for slot, tok := range b.slotValues {
		if tok == tokenID {
			return slot, true
		}
	}
	return "", false
}

func (b *WordBank) removeFromBank(tokenID string) bool {
	i := slices.Index(b.bankOrder, tokenID)
	if i < 0 {
		return false
	}
	b.bankOrder = slices.Delete(b.bankOrder, i, i+1)
	return true
}

// AssignWordToSlot places a token in a slot. A token previously held by the
// slot is appended to the end of the bank. A token currently sitting in
// another slot is moved, leaving that slot empty.
func (b *WordBank) AssignWordToSlot(slotID, tokenID string) error {
	if !b.knownSlot(slotID) {
		return ErrUnknownSlot
	}
	if !b.knownToken(tokenID) {
		return ErrUnknownToken
	}

	current, occupied := b.slotValues[slotID]
	if occupied && current == tokenID {
		b.activeSlot = ""
		return nil
	}

	if !b.removeFromBank(tokenID) {
		from, ok := b.SlotOf(tokenID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrTokenNotInBank, tokenID)
		}
		delete(b.slotValues, from)
	}
	if occupied {
		b.bankOrder = append(b.bankOrder, current)
	}
	b.slotValues[slotID] = tokenID
	if b.activeSlot == slotID {
		b.activeSlot = ""
	}
	b.emit(BankAssign, slotID, tokenID)
	return nil
}

// AssignWordByText assigns the first bank token whose text matches.
func (b *WordBank) AssignWordByText(slotID, text string) error {
	want := strings.TrimSpace(text)
	for _, id := range b.bankOrder {
		if b.model.TokenText(id) == want {
			return b.AssignWordToSlot(slotID, id)
		}
	}
	return fmt.Errorf("%w: %q", ErrTokenNotInBank, want)
}

// ClearSlot returns the slot's token to the end of the bank. Clearing an
// empty slot marks it as the target of the next TapToken instead.
func (b *WordBank) ClearSlot(slotID string) error {
	if !b.knownSlot(slotID) {
		return ErrUnknownSlot
	}
	tokenID, occupied := b.slotValues[slotID]
	if !occupied {
		b.activeSlot = slotID
		b.emit(BankClear, slotID, "")
		return nil
	}
	delete(b.slotValues, slotID)
	b.bankOrder = append(b.bankOrder, tokenID)
	b.emit(BankClear, slotID, tokenID)
	return nil
}

// MoveBetweenSlots relocates the token in fromID to toID. A token already
// in toID goes back to the bank.
func (b *WordBank) MoveBetweenSlots(fromID, toID string) error {
	if !b.knownSlot(fromID) || !b.knownSlot(toID) {
		return ErrUnknownSlot
	}
	tokenID, ok := b.slotValues[fromID]
	if !ok {
		return ErrEmptySlot
	}
	if fromID == toID {
		return nil
	}
	if displaced, occupied := b.slotValues[toID]; occupied {
		b.bankOrder = append(b.bankOrder, displaced)
	}
	delete(b.slotValues, fromID)
	b.slotValues[toID] = tokenID
	if b.activeSlot == toID {
		b.activeSlot = ""
	}
	b.emit(BankMove, toID, tokenID)
	return nil
}

// TapToken places a bank token into the active slot, or into the first empty
// slot in blank order when no slot is active.
func (b *WordBank) TapToken(tokenID string) (string, error) {
	if !b.knownToken(tokenID) {
		return "", ErrUnknownToken
	}
	if !slices.Contains(b.bankOrder, tokenID) {
		return "", fmt.Errorf("%w: %s", ErrTokenNotInBank, tokenID)
	}

	target := b.activeSlot
	if target == "" {
		for _, blank := range b.model.Blanks {
			if _, filled := b.slotValues[blank.ID]; !filled {
				target = blank.ID
				break
			}
		}
	}
	if target == "" {
		return "", ErrNoEmptySlot
	}

	current, occupied := b.slotValues[target]
	b.removeFromBank(tokenID)
	if occupied {
		b.bankOrder = append(b.bankOrder, current)
	}
	b.slotValues[target] = tokenID
	b.activeSlot = ""
	b.emit(BankTap, target, tokenID)
	return target, nil
}

// CheckConservation verifies that every token of the exercise is in exactly
// one place.
func (b *WordBank) CheckConservation() error {
	if got, want := len(b.slotValues)+len(b.bankOrder), len(b.model.BankTokens); got != want {
		return fmt.Errorf("token count %d, expected %d", got, want)
	}
	seen := make(map[string]string, len(b.model.BankTokens))
	for _, id := range b.bankOrder {
		if where, dup := seen[id]; dup {
			return fmt.Errorf("token %s in bank and %s", id, where)
		}
		seen[id] = "bank"
	}
	for slot, id := range b.slotValues {
		if where, dup := seen[id]; dup {
			return fmt.Errorf("token %s in slot %s and %s", id, slot, where)
		}
		seen[id] = "slot " + slot
	}
	for _, tok := range b.model.BankTokens {
		if _, ok := seen[tok.ID]; !ok {
			return fmt.Errorf("token %s lost", tok.ID)
		}
	}
	return nil
}

func (b *WordBank) Type() models.ExerciseType { return models.FillBlankWordBank }

func (b *WordBank) Validate() error {
	for _, blank := range b.model.Blanks {
		if b.model.TokenText(b.slotValues[blank.ID]) == "" {
			return validationError("respostasAluno", RuleAllBlanksFilled, "every blank needs a word from the bank", blank.ID)
		}
	}
	return nil
}

func (b *WordBank) Payload(questionID string) any {
	respostas := make([]models.WordBankAnswer, 0, len(b.model.Blanks))
	for _, blank := range b.model.Blanks {
		respostas = append(respostas, models.WordBankAnswer{
			LacunaID: blank.ID,
			Valor:    b.model.TokenText(b.slotValues[blank.ID]),
		})
	}
	return models.WordBankRequest{QuestionID: questionID, RespostasAluno: respostas}
}

func (b *WordBank) snapshot(out *models.AnswerSnapshot) {
	out.SlotValues = b.SlotValues()
	out.BankOrder = b.BankOrder()
	out.ActiveSlot = b.activeSlot
}
