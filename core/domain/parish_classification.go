package domain

// Category is the closed set of request categories the rule classifier
// can emit.
type Category string

const (
	CategoryAppointment    Category = "appointment"
	CategoryInformation    Category = "information"
	CategorySacrament      Category = "sacrament"
	CategoryCollaboration  Category = "collaboration"
	CategoryComplaint      Category = "complaint"
	CategoryGeneralContact Category = "general_contact"
	CategoryNone           Category = ""
)

// ReplyReason is the closed set of reasons attached to a classification
// decision.
type ReplyReason string

const (
	ReasonInternalCommunication ReplyReason = "internal_communication"
	ReasonUltraSimpleAck        ReplyReason = "ultra_simple_acknowledgment"
	ReasonGreetingOnly          ReplyReason = "greeting_only"
	ReasonLegitimateRequest     ReplyReason = "legitimate_request"
	ReasonConfirmationOnly      ReplyReason = "confirmation_without_questions"
	ReasonSustainedMessage      ReplyReason = "sustained_message_without_explicit_request"
	ReasonImplicitRequest       ReplyReason = "implicit_request"
	ReasonNoActionableContent   ReplyReason = "no_actionable_content"
	ReasonNeedsAIAnalysis       ReplyReason = "needs_ai_analysis"
	ReasonForceReply            ReplyReason = "force_reply"
	ReasonGateNoResponse        ReplyReason = "gemini_no_response_needed"
	ReasonGateNoReply           ReplyReason = "gemini_no_reply"
)

// ClassificationResult is the rule classifier verdict for one message.
type ClassificationResult struct {
	ShouldReply bool
	Reason      ReplyReason
	Confidence  float64
	Category    Category
}

// RequestType is the closed set of request natures used to steer prompt
// construction.
type RequestType string

const (
	RequestTechnical RequestType = "technical"
	RequestPastoral  RequestType = "pastoral"
	RequestMixed     RequestType = "mixed"
)

// RequestTypeResult scores a message along the technical, pastoral and
// doctrinal axes.
type RequestTypeResult struct {
	Type             RequestType
	TechnicalScore   int
	PastoralScore    int
	DoctrineScore    int
	NeedsDiscernment bool
	NeedsDoctrine    bool
}

// GateDecision is the outcome of the cheap pre-generation check.
type GateDecision struct {
	ShouldRespond bool
	Language      string
	// Failsafe marks a decision coming from the fallback path after a
	// malformed or failed gate call.
	Failsafe bool
}
