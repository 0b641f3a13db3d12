package services

// Services bundles the servicers built over one set of dependencies so they
// share a single mirror registry.
type Services struct {
	Groups   GroupServicer
	Balances BalanceServicer
	History  HistoryServicer
	Ranking  RankingServicer
}

// New wires every servicer.
func New(d Deps) *Services {
	d = d.withDefaults()
	hist := NewHistoryService(d)
	return &Services{
		Groups:   NewGroupService(d),
		Balances: NewBalanceService(d, hist),
		History:  hist,
		Ranking:  NewRankingService(d),
	}
}
