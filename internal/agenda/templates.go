// Package agenda holds the engagement-type-specific prompt templates used by
// the agenda creation agent. Template bodies are static content; the agent
// fills the placeholders from the confirmed engagement goals.
package agenda

import (
	"log/slog"

	"github.com/hubtab/TABAgent/internal/models"
)

// TemplateFor returns the agenda prompt template for an engagement type.
// Hackathons and consults have no dedicated format and reuse the solution
// envisioning body; unknown types fall back the same way so the workflow
// always installs a usable template.
func TemplateFor(engagementType models.EngagementType) string {
	switch engagementType {
	case models.EngagementBusinessEnvisioning:
		return templateBusinessEnvisioning
	case models.EngagementSolutionEnvisioning:
		return templateSolutionEnvisioning
	case models.EngagementADS:
		return templateADS
	case models.EngagementRapidPrototype:
		return templateRapidPrototype
	case models.EngagementHackathon, models.EngagementConsult:
		return templateSolutionEnvisioning
	default:
		slog.Debug("agenda.TemplateFor: unknown engagement type, using solution envisioning", "engagementType", engagementType)
		return templateSolutionEnvisioning
	}
}

const templateADS = `# Innovation Hub Agenda Format for Architecture & Design Session

**Agenda for Innovation Hub Session**

**Instructions**
- Based on the input from under the **### Topics Confirmation Message ###**:
  - map each $Goal & $GoalDetails in it against the rules in the [Agenda Topics Business Rules] section below to arrive at the associated topic line items
  - consolidate this information into a Markdown table that represents the complete agenda for the Innovation Hub Session.
- Fill the placeholders for $EngagementType, $Date, $LocationName, $HubArchitectName, $CustomerName with the actual values from the input.
- Replace the per-topic duration with a Start and End time based on when the session starts and ends.
- Assign speakers to topics **ONLY from the ##SpeakerMappingTable**:
  - Only assign names listed there; unlisted names must never appear in the output.
  - Check for an exact keyword match first; otherwise map Industry topics to Industry Advisors and Technical deep dives to Technical Architects.
  - If no matching speaker is found, mark as "TBD" or ask the user. Never default to an unlisted name.

[Topic Sequencing]
- The **first topic** must always be **Welcome & Introductions**.
- The **last topic** must always be **Wrap up & discuss next steps**.
- When a topic is split to accommodate a lunch break, the same topic and speaker continue after the break.

[Session Timings]
1. The session starts at 10 AM by default, unless the provided context indicates another start time.
2. The lunch break is 1 hour long and starts between 1:00 PM and 2:00 PM depending on the preceding topics.
3. The last topic must conclude by 5:00 PM; the end time may extend to 6:00 PM only after confirming with the user.
4. If topics exceed the available time until 6:00 PM, move the remaining topics to the next working day and confirm with the user.

[Agenda Topics Business Rules]
[Rule #1] When a $Goal pertains to an Architecture review of a current system, add two line items:
- ~1 hour, Architect Team of $CustomerName: review of the current architecture of $SystemName (business functionality, operational requirements, pain points, limitations to address).
- ~3 hours, Architect Team of $CustomerName & Microsoft $HubArchitect: discuss the to-be architecture (design options, key Microsoft Platform services, BCDR/HA/performance/security requirements, migration considerations, technical demo of key components).

[Rule #2] When a $Goal pertains to the Solution Architecture of a new system, add one line item:
- ~4 hours, Architect Team of $CustomerName & Microsoft $HubArchitect: functional & operational requirements, data sources, architecture & design choices on the Microsoft Platform, technology showcase, whiteboard session.

[Rule #3] When a $Goal pertains to a technology deep dive, add one line item:
- ~1 hour, Microsoft $HubArchitect: Technology Showcase for $TechnicalTopicName with live demonstrations covering integration strategies, performance optimization, and security best practices.

[Rule #4] When a $Goal pertains to Reference Architectures & Best Practices, add one line item:
- ~1 hour, Microsoft $HubArchitect: review of reference architectures, industry patterns, and best practices for $TechnicalTopicName addressing scalability, security, and performance.

[Sample Final Agenda]
Engagement Type: ADS
Customer Name: Contoso
Date: 26-Nov-2024
Location: Microsoft Innovation Hub, Bengaluru

| Time              | Speaker                          | Topic                                       | Description |
|-------------------|----------------------------------|---------------------------------------------|-------------|
| 10:00 AM-10:15 AM | Moderator                        | Welcome & Introductions                     | The Contoso Architect Team share their top of mind and key takeaways expected from the session. |
| 10:15 AM-11:15 AM | Architect Team of Contoso        | Review of current Architecture              | Review of the current architecture, pain points and requirements for the to-be architecture. |
| 11:15 AM-1:30 PM  | Contoso & Microsoft Architects   | Discuss to-be architecture                  | Arrive at potential architecture & design options with key Microsoft Platform services. |
| 1:30 PM-2:30 PM   |                                  | Lunch                                       | |
| 2:30 PM-4:30 PM   | Microsoft Hub Architect          | Technology Showcase                         | In-depth exploration of the selected technology topic with live demonstrations. |
| 4:30 PM-5:00 PM   |                                  | Wrap up & discuss next steps                | |

--- use chain of thought to process the user requests ---
`

const templateRapidPrototype = `# Innovation Hub Agenda Format for Rapid Prototype

**Agenda for Innovation Hub Session**
Engagement Type: $EngagementType
Customer Name: $CustomerName
Date: $Date (format - DD-MMM-YYYY)
Location: $LocationName

For each use case to be implemented in the prototype, add the two line items below:

| Time       | Speaker                                            | Topic | Description |
|------------|----------------------------------------------------|-------|-------------|
| 60 minutes | $CustomerName Dev Team, MS Architects: $HubArchitectName | **Understanding the Requirements & Goals behind Use Case** - $UseCaseDescription | Functional & operational requirements, solution architecture design options (or review of the ADS session outcome), availability of cloud services, software, licenses, and access. Goals, design approach and capabilities to be implemented: $UseCaseGoals |
| 4 hours    | $CustomerName Dev Team, MS Architects: $HubArchitectName | **Build the Prototype** - $UseCaseDescription | Development, deployment, testing, and validation of the use case implementation. |

**Instructions**
- Maintain the durations above; derive Start and End times from the actual session timings.
- $UseCaseDescription - extract an up-to ~15 word description of the use case from under **### Topics Confirmation Message ###**.
- $UseCaseGoals - infer the goals, design approach, and capabilities to be implemented from under **### Topics Confirmation Message ###**.
- When the agenda spills over 5 PM, ask the user whether extending to 6 PM is acceptable; otherwise split into 2 days and confirm.
- The **first topic** must always be **Welcome & Introductions** and the **last topic** must always be **Wrap up & discuss next steps**.
- Assign Microsoft speakers **ONLY from the ##SpeakerMappingTable**; unlisted names must never appear. Exact keyword match first, then category mapping (Industry topics to Industry Advisors, technical deep dives to Technical Architects). Unmatched topics get "TBD" or a clarification request, never a default.
`

const templateBusinessEnvisioning = `# Innovation Hub Agenda Format for Business Envisioning

**Agenda for Innovation Hub Session**
Engagement Type: $EngagementType
Customer Name: $CustomerName
Date: $Date (format - DD-MMM-YYYY)
Location: $LocationName

**Instructions**
Generate the Agenda Topics from the user input under **### Topics Confirmation Message ###**.
- Fill the placeholders for $EngagementType, $Date, $LocationName, $SpeakerName, $CustomerName, $TopicTitle, $TopicDescription with the actual values.
- $TopicTitle - extract an up-to ~10 word description of the topic.
- $TopicDescription - generate a compelling ~50 to ~100 word description capturing what needs to be delivered during the session, formatted in Markdown.

## Business Rules
### Rule 1: Engagement Type, Technical Depth and Duration
- Topics and descriptions must be non-technical, driven by business/domain specific use case scenarios.
- No single topic spans more than 1 1/2 hours; 1 hour is ideal, 30 minutes is acceptable.
### Rule 2: Mandatory Line Items
- The **first topic** must always be **Welcome & Introductions**; the **last topic** must always be **Wrap up & discuss next steps**.
### Rule 3: Speaker Assignment
- Assign speakers **ONLY from the ##SpeakerMappingTable**; unlisted names must never appear in the output.
- Exact keyword match first, then category mapping (Industry topics to Industry Advisors, technical deep dives to Technical Architects); most specific speaker wins.
- Unmatched topics get "TBD" or a clarification request, never a default.
### Rule 4: Topic Sequencing
- Topics involving the Customer's Leadership Team are scheduled right after the introductions; keynote and latest-trends topics follow.
- Include every topic from **### Topics Confirmation Message ###** in the Agenda Table.
### Rule 5: Session Timings
1. The session starts at 10 AM by default unless the context specifies another start time.
2. Insert a 15-minute break every 2 hours.
3. The lunch break is 1 hour long and starts between 1:00 PM and 2:00 PM.
4. The last topic must conclude by 5:00 PM; extending to 6:00 PM requires user confirmation.
`

const templateSolutionEnvisioning = `# Innovation Hub Agenda Format for Solution Envisioning

**Agenda for Innovation Hub Session**
Engagement Type: $EngagementType
Customer Name: $CustomerName
Date: $Date (format - DD-MMM-YYYY)
Location: $LocationName

**Instructions**
Generate the Agenda Topics from the user input under **### Topics Confirmation Message ###**.
- Fill the placeholders for $EngagementType, $Date, $LocationName, $SpeakerName, $CustomerName, $TopicTitle, $TopicDescription with the actual values.
- $TopicTitle - extract an up-to ~10 word description of the topic.
- $TopicDescription - generate a compelling ~50 to ~100 word description capturing what needs to be delivered during the session, formatted in Markdown. For technical topics, include the names of the technology services, tools, and frameworks that will be discussed.

## Business Rules
### Rule 1: Engagement Type, Technical Depth and Duration
- Topics and descriptions can be either technical or non-technical in nature.
- No single topic spans more than 1 1/2 hours; 1 hour is ideal, 30 minutes is acceptable.
### Rule 2: Mandatory Line Items
- The **first topic** must always be **Welcome & Introductions**; the **last topic** must always be **Wrap up & discuss next steps**.
### Rule 3: Speaker Assignment
- Assign speakers **ONLY from the ##SpeakerMappingTable**; unlisted names must never appear in the output.
- Exact keyword match first, then category mapping (Industry topics to Industry Advisors, technical deep dives to Technical Architects); most specific speaker wins.
- Unmatched topics get "TBD" or a clarification request, never a default.
### Rule 4: Topic Sequencing
- Topics involving the Customer's Leadership Team are scheduled right after the introductions; keynote and latest-trends topics follow.
- Include every topic from **### Topics Confirmation Message ###** in the Agenda Table.
- When splitting a session around breaks, the same speaker and topic resume after the break.
### Rule 5: Session Timings
1. The session starts at 10 AM by default unless the context specifies another start time.
2. Insert a 15-minute break every 2 hours.
3. The lunch break is 1 hour long and starts between 1:00 PM and 2:00 PM.
4. The last topic must conclude by 5:00 PM; extending to 6:00 PM requires user confirmation.
`
