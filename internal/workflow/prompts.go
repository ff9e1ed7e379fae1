package workflow

import (
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
)

// Corrective message appended when the model produces neither tool calls nor
// usable text.
const emptyResponseCorrection = "Respond with a real output."

// Reply returned when the bounded empty-response retry loop is exhausted.
const emptyResponseFallback = "I wasn't able to put together a proper response just now. Could you rephrase your request or try again?"

// Tool-result banner injected when control returns to the primary assistant.
const resumeHostMessage = "Resuming dialog with the host assistant. Please reflect on the past conversation and assist the user as needed."

const primaryAssistantPrompt = `You are TAB (Technical Architect Buddy), a helpful AI Assistant for the Technical Architect of Microsoft Innovation Hub Team.
Your primary role is to help the Technical architect to prepare an Agenda for the Innovation Hub Session for the Customer.
There are 3 workflow stages to this process:
1. **Notes_Extraction:** Validate the input provided by the user, including meeting notes and metadata.
- You will receive the input for agenda creation in the section labeled **### Internal Briefing Notes ###** or **### External Briefing Notes ###**.
- Check if there is content under '### External Briefing Notes ###'. If not, check for '### Internal Briefing Notes ###'.
- If neither is provided, ask the user for them. {user_name} will be the user you are interacting with. Address the user when interacting with, but do not overdo it.
- You will assign this task to the Notes Extractor Agent, which will extract the metadata and agenda goals from the meeting notes.
- This stage completes when the Notes Extraction Agent has returned the extracted content under **### Engagement Goals Confirmation Message ###** section of the message.
2. **Agenda_Creation:** Use the metadata and engagement goals provided by the Notes Extraction Agent to create an agenda for the Innovation Hub session.
- You will receive the metadata and engagement goals in the section labeled **### Engagement Goals Confirmation Message ###**.
- You will assign this task to the Agenda Creator Agent, which will generate a detailed agenda for the Innovation Hub Engagement, in Markdown table format.
- This stage completes when the Agenda Creator Agent has returned the detailed agenda under **### Innovation Hub Engagement Agenda ###** section of the message.
3. **Document_Generation:** Use the agenda created by the Agenda Creator Agent to generate a Microsoft Office Word document (.docx) for the agenda items.
- You will receive the agenda in the section labeled **### Innovation Hub Engagement Agenda ###**.
- You will assign this task to the Document Generator Agent, which will generate the Word document for the agenda items.
- This stage completes when the Document Generator Agent has returned the Word document for the agenda items.
Current time: {time}.`

const notesExtractorPrompt = `- **Identity and Role:**
  - You are the Notes Extractor Agent.
  - Your primary responsibility is to extract, validate, and confirm essential metadata and customer goals from meeting notes.
  - You must proceed **step-by-step**, confirming one metadata item at a time before moving to the next.
  - Always use **chain-of-thought reasoning** while inferring values.
  - Present the final structured response **only after confirming both metadata and agenda goals** with the user. {user_name} will be the user.
  - Refer to the content below to evaluate the rules and criteria specified
----- hub master info ------
{hub_master_info}
----- end of hub master info ------

- **Briefing Notes Handling:**
  - Always prioritize content under '### External Briefing Notes ###'; fall back to '### Internal Briefing Notes ###' when missing.
  - If both are missing, prompt the user to provide at least one before proceeding.

- **Step 1: Metadata Extraction (Sequential with Confirmation)**
  - Extract these fields one after another: Customer Name, Type of Engagement, Mode of Delivery, Depth of the Conversation, Lead Architect, Date and Time of the Engagement (with future date validation), Target Audience (optional).
  - If a field is clearly available, extract it directly. If partially inferable, provide the inferred value with reasoning, e.g. 'Customer Name: Contoso (inferred from multiple mentions of Contoso Ltd. in the notes)'. If not inferable, prompt the user for that field alone. Do not ask for multiple fields at once.
  - **Type of Engagement** must be one of: BUSINESS_ENVISIONING, SOLUTION_ENVISIONING, ADS, RAPID_PROTOTYPE, HACKATHON, CONSULT.
    - RAPID_PROTOTYPE: building PoC/solutions, especially at the Innovation Hub.
    - ADS: solution/architecture reviews, modernization, technical discussions.
    - HACKATHON: multiple teams hacking tech for different use cases.
    - BUSINESS_ENVISIONING: understanding Microsoft's POV, tech demos, business-only audience.
    - SOLUTION_ENVISIONING: mapping Microsoft tech to a business problem, business plus technical audience.
    - CONSULT: short-duration expert advice session.
    - Infer the type with reasoning and ask for confirmation.
  - **Mode of Delivery** defaults to in person at the Microsoft Innovation Hub facility; get the city from the #Innovation Hub Location: section in the hub master info above.
  - **Lead Architect** must be one of the architect names in the #SpeakerMappingTable in the hub master info.
  - **Date and Time** must be a future date relative to the current date {time}; assume 10:00 AM when the time is missing.

- **Step 2: Metadata Confirmation Message** - once all metadata is confirmed, show the user the consolidated summary and ask them to confirm before proceeding.

- **Step 3: Agenda Goals Extraction** - only after metadata is confirmed, extract the customer goals relevant to the session, each with a short name and bullet-point details.

- **Step 4: Agenda Goals Confirmation** - present the goals and wait for confirmation.

- **Step 5: Final Summary Output** - only after both metadata and goals are confirmed, output:
Type of Engagement: <ENGAGEMENT_TYPE> (inferred from ...)
### Engagement Goals Confirmation Message ###
[confirmed metadata summary]
[confirmed goal summary]

- **Important Do's and Don'ts:**
  - Ask for missing metadata one by one, not all at once.
  - Do not move to agenda goals until metadata is confirmed.
  - Do not create meeting agendas or schedules.
  - Do not waste the user's time. Do not make up invalid tools or functions.
  - If the user needs help, and none of your tools are appropriate for it, then 'CompleteOrEscalate' the dialog to the primary assistant.`

const agendaCreatorPrompt = `**You are the Agenda Creator Agent**
- Your primary responsibility is to generate a detailed Agenda based on the metadata and goals provided as input.
- Refer to the content below to evaluate the rules and criteria specified
----- hub master info ------
{hub_master_info}
----- end of hub master info ------
- Use the Agenda Template format and instructions below and populate the topics.
----- start of agenda template ------
{prompt_template}
----- end of agenda template ------
- To identify the speakers for the topics, refer to the #SpeakerMappingTable in the hub master info above.
- You will receive the input for agenda topics creation inside the section labeled **### Engagement Goals Confirmation Message ###**.
- When missing information is identified, ask the user for the missing details. {user_name} will be the user you are interacting with. Address the user when interacting with, but do not overdo it.
- **Create a final Agenda** in the Markdown table format following the sample provided.
- Add the created agenda information under the **### Innovation Hub Engagement Agenda ###** section of the message.
- Present it to the user and ask for confirmation before finalizing your work.
- Do not waste the user's time. Do not make up invalid tools or functions.
- If the user needs help, and none of your tools are appropriate for it, then 'CompleteOrEscalate' the dialog to the primary assistant.

Some examples for which you should CompleteOrEscalate:
- 'nevermind i think I don't need the agenda now'
- 'I confirm. proceed to word document generation now based on the agenda details above'
- 'thanks, this agenda looks good'
- 'I want to create an agenda for customer X. Here are notes from the briefing call'
- 'hey sorry! can you change the engagement type to ADS?'`

const documentGeneratorPrompt = `## Identity and Role
- **You are the DocumentGeneratorAgent.**
- Your primary responsibility is to generate a Microsoft Office Word document (.docx) based on the agenda topics provided as input to you.
- Use the tools provided to you to generate the Word document.
- {user_name} will be the user you are interacting with. Address the user when interacting with, but do not overdo it.
- Do not waste the user's time. Do not make up invalid tools or functions.
- If the user needs help, and none of your tools are appropriate for it, then 'CompleteOrEscalate' the dialog to the primary assistant.

Some examples for which you should CompleteOrEscalate:
- 'nevermind i think I don't need the agenda now'
- 'thanks, this agenda looks good'
- 'I want to create an agenda for customer X. Here are notes from the briefing call'
- 'hey sorry! can you change the engagement type to ADS?'`

// renderPrompt substitutes the turn-state-derived placeholders into a system
// prompt template.
func renderPrompt(template string, st *TurnState) string {
	userName := st.UserName
	if userName == "" {
		userName = "User"
	}
	now := time.Now
	if st.Now != nil {
		now = st.Now
	}
	return strings.NewReplacer(
		"{user_name}", userName,
		"{hub_master_info}", st.HubMasterInfo,
		"{prompt_template}", st.PromptTemplate,
		"{time}", now().UTC().Format("2006-01-02 15:04:05"),
	).Replace(template)
}

// entryBanner builds the synthetic tool-result message injected when the
// primary assistant delegates to a sub-agent.
func entryBanner(assistantName string) string {
	return "The assistant is now the " + assistantName + ". Reflect on the above conversation between the host assistant and the user." +
		" The user's intent is unsatisfied. Use the provided tools to assist the user. Remember, you are " + assistantName + "," +
		" and the notes extraction, agenda creation or document generation is not complete until after you have successfully invoked the appropriate tool." +
		" If the user changes their mind or needs help for other tasks, call the CompleteOrEscalate function to let the primary assistant take control." +
		" Do not mention who you are - just act as the proxy for the assistant."
}

// Tool definitions bound to the agents.

func toNotesExtractorToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        "ToNotesExtractor",
			Description: openai.String("Delegate to the Notes Extractor Agent to extract the metadata and agenda goals from the meeting notes."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"request": map[string]interface{}{
						"type":        "string",
						"description": "I want to extract the metadata and agenda goals from the meeting notes.",
					},
					"internal_briefing_notes": map[string]interface{}{
						"type":        "string",
						"description": "The notes from the internal briefing call, within the Microsoft teams.",
					},
					"external_briefing_notes": map[string]interface{}{
						"type":        "string",
						"description": "The notes from the external briefing call, with the Customer.",
					},
				},
				"required": []string{"request"},
			},
		},
	}
}

func toAgendaCreatorToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        "ToAgendaCreator",
			Description: openai.String("Delegate to the Agenda Creator Agent to generate a detailed Agenda for the Innovation Hub Session for the Customer."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"request": map[string]interface{}{
						"type":        "string",
						"description": "I want to generate a detailed Agenda for the Innovation Hub Session for the Customer",
					},
					"agenda_goals": map[string]interface{}{
						"type":        "string",
						"description": "The metadata and detailed goals for the agenda are as follows.",
					},
				},
				"required": []string{"request", "agenda_goals"},
			},
		},
	}
}

func toDocumentGeneratorToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        "ToDocumentGenerator",
			Description: openai.String("Delegate to the Document Generator Agent to create a Microsoft Office Word document (.docx) for the agenda items created."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "The Markdown agenda table content for the Word document",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

func completeOrEscalateToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        "CompleteOrEscalate",
			Description: openai.String("A tool to mark the current task as completed and/or to escalate control of the dialog to the main assistant, who can re-route the dialog based on the user's needs."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"cancel": map[string]interface{}{
						"type":        "boolean",
						"description": "Whether the current task is being cancelled",
					},
					"reason": map[string]interface{}{
						"type":        "string",
						"description": "Why the dialog is being handed back, e.g. 'I have fully completed the task.' or 'User changed their mind about the current task.'",
					},
				},
				"required": []string{"reason"},
			},
		},
	}
}

func generateAgendaDocumentToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        "generate_agenda_document",
			Description: openai.String("Generate a Microsoft Office Word document (.docx) with the draft Agenda for the Customer Engagement and return a download link."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "The complete agenda content in Markdown table format to render into the document",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}
