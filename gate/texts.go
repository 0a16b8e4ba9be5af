package gate

// Texts are the user-visible strings sent by the coordinator.
// Prompt, TimedOutNotice and DeniedNotice are format strings taking the
// member's display name. Localization stays outside the core: replace
// the whole struct via WithTexts.
type Texts struct {
	// Prompt is the challenge message. Takes the display name.
	Prompt string

	// Success replaces the prompt after a correct answer.
	Success string

	// Failure replaces the prompt after a wrong answer.
	Failure string

	// TimedOut replaces the prompt when an answer arrives after the deadline.
	TimedOut string

	// TimedOutNotice is sent to the chat when a challenge expires
	// unanswered. Takes the display name.
	TimedOutNotice string

	// DeniedNotice is sent when a denylisted user joins again.
	// Takes the display name.
	DeniedNotice string

	// NotYourChallenge is the transient reply for a responder without a
	// pending challenge, or tapping someone else's (or a stale) prompt.
	NotYourChallenge string
}

// DefaultTexts are the English defaults.
var DefaultTexts = Texts{
	Prompt:           "Hi, %s! Pick the lizard 🦎 among the options below to confirm you are not a spammer.",
	Success:          "Verification passed. Welcome!",
	Failure:          "Wrong answer. You remain restricted.",
	TimedOut:         "Time to complete the verification ran out. You remain restricted.",
	TimedOutNotice:   "%s did not complete verification and remains restricted.",
	DeniedNotice:     "%s previously failed verification and remains restricted.",
	NotYourChallenge: "This verification is not for you, or it has already finished.",
}
