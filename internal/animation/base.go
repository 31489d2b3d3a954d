package animation

// base общее состояние анимации: флаг активности и счётчик
type base struct {
	active   bool
	progress Progress
}

func (b *base) Active() bool { return b.active }

func (b *base) Progress() float64 { return b.progress.Value }

// Holding ждёт внешнюю цель
func (b *base) Holding() bool { return b.active && b.progress.Holding() }

// Step продвигает анимацию; по завершении она деактивируется
func (b *base) Step(dt float64) bool {
	if !b.active {
		return false
	}
	if b.progress.Advance(dt) {
		b.active = false
		return true
	}
	return false
}

// Cancel сбрасывает анимацию в неактивное состояние при любом progress
func (b *base) Cancel() {
	b.active = false
}
