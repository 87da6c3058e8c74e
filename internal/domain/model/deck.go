package model

import (
	"encoding/json"
	"fmt"
)

// BlankSlide — разметка нового пустого слайда.
const BlankSlide = `<div style="padding: 40px;"></div>`

// Deck — презентация: упорядоченный список разметки слайдов и текущий слайд.
// Всегда содержит хотя бы один слайд.
type Deck struct {
	slides  []string
	current int
}

// NewDeck создаёт презентацию из одного пустого слайда.
func NewDeck() *Deck {
	return &Deck{slides: []string{BlankSlide}}
}

// NewDeckFrom создаёт презентацию из готовых слайдов.
// Пустой список заменяется одним пустым слайдом.
func NewDeckFrom(slides []string) *Deck {
	if len(slides) == 0 {
		return NewDeck()
	}
	cp := make([]string, len(slides))
	copy(cp, slides)
	return &Deck{slides: cp}
}

// Len возвращает количество слайдов.
func (d *Deck) Len() int {
	return len(d.slides)
}

// Current возвращает индекс текущего слайда.
func (d *Deck) Current() int {
	return d.current
}

// Slides возвращает копию списка слайдов.
func (d *Deck) Slides() []string {
	out := make([]string, len(d.slides))
	copy(out, d.slides)
	return out
}

// Slide возвращает разметку слайда по индексу.
func (d *Deck) Slide(index int) (string, bool) {
	if index < 0 || index >= len(d.slides) {
		return "", false
	}
	return d.slides[index], true
}

// Append добавляет пустой слайд в конец и делает его текущим.
func (d *Deck) Append() int {
	d.slides = append(d.slides, BlankSlide)
	d.current = len(d.slides) - 1
	return d.current
}

// Delete удаляет слайд по индексу. Единственный слайд не удаляется.
// Если удалён слайд на позиции текущего или перед ним, текущий индекс
// сдвигается на один назад (но не ниже нуля).
// Возвращает true, если слайд был удалён.
func (d *Deck) Delete(index int) bool {
	if len(d.slides) <= 1 || index < 0 || index >= len(d.slides) {
		return false
	}
	d.slides = append(d.slides[:index], d.slides[index+1:]...)
	if index <= d.current && d.current > 0 {
		d.current--
	}
	return true
}

// Select делает слайд текущим.
func (d *Deck) Select(index int) error {
	if index < 0 || index >= len(d.slides) {
		return fmt.Errorf("слайд %d вне диапазона [0, %d)", index, len(d.slides))
	}
	d.current = index
	return nil
}

// SetCurrent заменяет разметку текущего слайда.
func (d *Deck) SetCurrent(markup string) {
	d.slides[d.current] = markup
}

// Serialize кодирует слайды в формат хранения (JSON массив строк).
func (d *Deck) Serialize() (string, error) {
	data, err := json.Marshal(d.slides)
	if err != nil {
		return "", fmt.Errorf("сериализация презентации: %w", err)
	}
	return string(data), nil
}

// ParseDeck декодирует презентацию из формата хранения.
func ParseDeck(content string) (*Deck, error) {
	var slides []string
	if err := json.Unmarshal([]byte(content), &slides); err != nil {
		return nil, fmt.Errorf("разбор презентации: %w", err)
	}
	return NewDeckFrom(slides), nil
}
