package handlers

// Handlers groups the HTTP endpoints for accounts, translation, history,
// and speech. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	accountSvc AccountService
	historySvc HistoryService
	txSvc      TranslationService
	speechSvc  SpeechService
}

// New constructs a Handlers instance bound to the given services.
func New(accountSvc AccountService, historySvc HistoryService, txSvc TranslationService, speechSvc SpeechService) *Handlers {
	return &Handlers{
		accountSvc: accountSvc,
		historySvc: historySvc,
		txSvc:      txSvc,
		speechSvc:  speechSvc,
	}
}
