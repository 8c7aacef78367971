package frontend

type BannerKind int

const (
	BannerInfo BannerKind = iota
	BannerSuccess
	BannerError
)

func (k BannerKind) String() string {
	switch k {
	case BannerSuccess:
		return "success"
	case BannerError:
		return "error"
	}
	return "info"
}

// Banner is a transient message attached to one section.
type Banner struct {
	Text string
	Kind BannerKind
	seq  uint64
}

// showBanner replaces the section's banner and schedules its dismissal.
// A dismissal only removes the banner it was scheduled for, so a newer
// message on the same section keeps its full lifetime.
func (a *App) showBanner(s Section, kind BannerKind, text string) {
	a.bannerSeq++
	seq := a.bannerSeq
	a.banners[s] = Banner{Text: text, Kind: kind, seq: seq}
	a.afterFunc(a.bannerTTL, func() {
		a.Post(bannerExpired{section: s, seq: seq})
	})
}

func (a *App) showError(s Section, err error) {
	a.showBanner(s, BannerError, err.Error())
}

func (a *App) clearBanner(s Section) {
	delete(a.banners, s)
}

func (a *App) bannerExpired(e bannerExpired) {
	if b, ok := a.banners[e.section]; ok && b.seq == e.seq {
		delete(a.banners, e.section)
	}
}
