package engine

// User-facing texts. Deliberately plain: notification templating is owned by
// HR tooling, not the engine.
const (
	msgNotRegistered = "You are not registered as a candidate for any vacancy. " +
		"If you received a registration token, send /start <token>."
	msgNoActiveApplication = "You have no active applications."
	msgNoQuestions         = "There are no questions configured for this vacancy yet. Please try again later."
	msgResuming            = "Resuming your questionnaire from where you left off."
	msgCancelled           = "The questionnaire is paused. Send /start to continue where you left off."
	msgNothingToCancel     = "Nothing is in progress. Send /start to begin."
	msgNoSession           = "No questionnaire in progress. Send /start to begin."
	msgConsentDeclined     = "Understood. Your answers will not be processed. Send /start if you change your mind."
	msgSubmitted           = "Thank you! Your answers were submitted for review. We will get back to you soon."
	msgAlreadySubmitted    = "Your answers were already submitted for this application."
	msgConversationLost    = "Something went wrong with this questionnaire. Please send /start to begin again."
	msgTryLater            = "A temporary error occurred. Please try again in a moment."
	msgTextExpected        = "Please send a text answer."
	msgFileExpected        = "Please attach a file as your answer."
	msgChoiceExpected      = "Please pick one of the offered options."
	msgUseReviewButtons    = "Use the buttons below to edit an answer or submit the questionnaire."

	labelCancel = "Cancel"
	labelSubmit = "Submit"
	labelYes    = "Yes"
	labelNo     = "No"
)
