package telemetry

// GenAI and domain span/attribute names, trimmed from the teacher's
// v2/observability constants.go to the spans this module actually emits.
const (
	AttrGenAISystem              = "gen_ai.system"
	AttrGenAIOperationName       = "gen_ai.operation.name"
	AttrGenAIRequestModel        = "gen_ai.request.model"
	AttrGenAIResponseFinishReason = "gen_ai.response.finish_reason"
	AttrGenAIUsageInputTokens    = "gen_ai.usage.input_tokens"
	AttrGenAIUsageOutputTokens   = "gen_ai.usage.output_tokens"

	AttrAgentID     = "agentcore.agent.id"
	AttrSessionID   = "agentcore.session.id"
	AttrPurpose     = "agentcore.llm.purpose"
	AttrProvider    = "agentcore.llm.provider"
	AttrActionName  = "agentcore.action.name"
	AttrIteration   = "agentcore.reasoning.iteration"
	AttrMemoryQuery = "agentcore.memory.query"

	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"

	OpChat = "chat"

	SpanLLMCall            = "llm.call"
	SpanActionDispatch     = "action.dispatch"
	SpanReasoningIteration = "reasoning.iteration"
	SpanMemorySearch       = "memory.search"
)
