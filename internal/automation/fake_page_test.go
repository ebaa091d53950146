package automation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackzampolin/stockpilot/internal/browser"
)

// fakeItem is one scripted entry in the fake upload queue.
type fakeItem struct {
	id    string
	title string
	desc  string
}

// fakePage is a scripted browser.Page backed by an in-memory queue. Submit
// clicks consume the current item; next-item clicks skip past it.
type fakePage struct {
	mu sync.Mutex

	items []fakeItem
	idx   int

	loc              string
	challengeVisible bool
	secureLogin      bool

	failClick    map[string]error
	failNavigate int // remaining upload navigations to fail

	submitted   []string
	navigations []string
	fills       map[string]string
	typed       []string

	onSubmitted func(id string)
}

func newFakePage(items ...fakeItem) *fakePage {
	return &fakePage{
		items:     items,
		loc:       "https://www.example.com/",
		failClick: make(map[string]error),
		fills:     make(map[string]string),
	}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigations = append(p.navigations, url)
	if strings.Contains(url, "upload") && p.failNavigate > 0 {
		p.failNavigate--
		return fmt.Errorf("connection reset")
	}
	p.loc = url
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	if err := p.failClick[selector]; err != nil {
		p.mu.Unlock()
		return err
	}
	switch selector {
	case browser.SelSubmitButton:
		if p.idx < len(p.items) {
			id := p.items[p.idx].id
			p.submitted = append(p.submitted, id)
			p.idx++
			hook := p.onSubmitted
			p.mu.Unlock()
			if hook != nil {
				hook(id)
			}
			return nil
		}
	case browser.SelNextItem:
		if p.idx < len(p.items) {
			p.idx++
		}
	}
	p.mu.Unlock()
	return nil
}

func (p *fakePage) Fill(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fills[selector] = value
	return nil
}

func (p *fakePage) Type(ctx context.Context, selector, text string, keyDelay time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typed = append(p.typed, text)
	return nil
}

func (p *fakePage) SelectOption(ctx context.Context, selector, value string) error {
	return nil
}

func (p *fakePage) Text(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch selector {
	case browser.SelOriginalFilename:
		if p.idx < len(p.items) {
			return p.items[p.idx].id, nil
		}
		return "", fmt.Errorf("no item open")
	case browser.SelUploadCount:
		return fmt.Sprintf("%d", len(p.items)-p.idx), nil
	}
	return "", nil
}

func (p *fakePage) Value(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.idx >= len(p.items) {
		return "", fmt.Errorf("no item open")
	}
	switch selector {
	case browser.SelTitleInput:
		return p.items[p.idx].title, nil
	case browser.SelDescriptionInput:
		return p.items[p.idx].desc, nil
	}
	return "", nil
}

func (p *fakePage) Count(ctx context.Context, selector string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items) - p.idx, nil
}

func (p *fakePage) Visible(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch selector {
	case browser.SelChallengeButton:
		return p.challengeVisible, nil
	case browser.SelUsernameInput:
		return true, nil
	case browser.SelNextItem:
		return true, nil
	}
	return false, nil
}

func (p *fakePage) PressAndHold(ctx context.Context, selector string, hold time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.challengeVisible = false
	return nil
}

func (p *fakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (p *fakePage) Location(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.secureLogin {
		return "https://www.example.com/securelogin/", nil
	}
	return p.loc, nil
}

func (p *fakePage) Screenshot(ctx context.Context, selector string) ([]byte, error) {
	return []byte("image-bytes"), nil
}

func (p *fakePage) submittedIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.submitted...)
}
