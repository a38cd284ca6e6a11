package assist

import "fmt"

// Prompt templates for the three collaborator operations. The wording is
// part of the operation contract; changing it changes the quality and
// shape of the generated text.

const generatePromptTemplate = `You are an expert Ansible engineer. Generate a complete and valid Ansible playbook in YAML format based on the following requirement. The playbook should be well-structured, include comments where necessary, and follow best practices. Only output the YAML code, without any surrounding text or markdown backticks.

Requirement: %s`

const analyzePromptTemplate = `You are an expert Ansible engineer. Analyze the following Ansible playbook. Provide a summary in markdown format that includes:
1.  **Overall Purpose:** A brief, one-sentence summary of what the playbook does.
2.  **Key Tasks:** A bulleted list of the main actions performed by the playbook.
3.  **Dependencies & Execution Order:** Explain if any tasks depend on others and if the execution order is critical. If there are no specific dependencies, state that.
4.  **Validation:** Briefly comment on the validity of the playbook and suggest any simple improvements.

Playbook Content:
` + "```yaml\n%s\n```"

const comparePromptTemplate = `You are a senior DevOps engineer comparing the output of an Ansible playbook run on two different environments. Analyze the two execution logs below and provide a concise summary of the key differences. Focus on changed values, different task outcomes (e.g., ok vs. failed), or any discrepancies in system state reported in the logs. If the outputs are functionally identical (e.g., only timestamps differ), state that. Format your response as markdown with clear headings for each difference found.

---
Log A:
---
%s

---
Log B:
---
%s
`

func generatePrompt(requirement string) string {
	return fmt.Sprintf(generatePromptTemplate, requirement)
}

func analyzePrompt(content string) string {
	return fmt.Sprintf(analyzePromptTemplate, content)
}

func comparePrompt(logA, logB string) string {
	return fmt.Sprintf(comparePromptTemplate, logA, logB)
}
