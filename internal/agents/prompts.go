package agents

import "fmt"

const reportSystemInstruction = "You are a research analyst skilled at creating well-structured, concise reports optimized for display in a UI. " +
	"Focus only on information that will be shown to the user."

const deepReportTemplate = `You are a professional research analyst and report writer tasked with creating a comprehensive, well-structured report on "%s".

Use the following context information to create a detailed report with the following structure:

# Executive Summary
Provide a comprehensive executive summary with 5-6 detailed paragraphs that thoroughly capture the essence of the topic, key insights, main conclusions, and critical dimensions. Each paragraph should focus on a different aspect or perspective of the topic to ensure comprehensive coverage.

# Introduction
Provide background information and context about the topic, explaining its significance and relevance.

# Detailed Analysis
Create 4-5 main sections with detailed analysis. Each section should have:
- Clear heading
- Comprehensive explanation with supporting details
- Relevant data, statistics, or examples where available
- Critical evaluation of different perspectives

# Key Findings
Present 8-10 key findings as bullet points with brief explanations.

# Implications and Applications
Discuss the practical implications, potential applications, and real-world impact of the findings.

# Challenges and Limitations
Identify major challenges, limitations, or areas of concern related to the topic.

# Future Outlook
Provide insights on future trends, developments, or directions in this field.

# Conclusions and Recommendations
Summarize the main conclusions and provide 5-6 actionable recommendations.

Context Information:
%s

Ensure the report is comprehensive (2500+ words), well-organized, and professionally formatted using proper Markdown syntax with appropriate headings, subheadings, and lists. Focus on depth and quality rather than brevity. Pay special attention to creating a thorough executive summary with 5-6 substantive paragraphs.`

const quickReportTemplate = `You are a professional research analyst tasked with creating a comprehensive overview report on "%s".

Use the following context information to create a detailed report with the following structure:

# Executive Summary
Provide a comprehensive executive summary with 3-5 detailed paragraphs that thoroughly capture the key points, main insights, and critical aspects of the topic. Each paragraph should focus on a different dimension or perspective of the topic.

# Key Aspects
Create 2-3 main sections covering the most important aspects of the topic, with clear headings and detailed explanations.

# Analysis and Insights
Provide critical analysis with supporting evidence, examples, and relevant data where available.

# Key Findings
Present 5-7 key findings as bullet points with brief explanations.

# Implications
Discuss the significance and potential implications of the findings.

# Conclusions and Recommendations
Summarize the main conclusions and provide 3-4 actionable recommendations.

Context Information:
%s

Ensure the report is well-organized and professionally formatted using proper Markdown syntax with appropriate headings and lists. Create a comprehensive report that provides substantial insights while remaining focused. Aim for approximately 1500-2000 words total with particular emphasis on a detailed executive summary.`

// ReportPrompt picks the deep or quick template.
func ReportPrompt(topic, gathered string, deep bool) string {
	if deep {
		return fmt.Sprintf(deepReportTemplate, topic, gathered)
	}
	return fmt.Sprintf(quickReportTemplate, topic, gathered)
}

const assistantSystemInstruction = "You are JARVIS, a knowledgeable AI research assistant. " +
	"Answer clearly and accurately, use Markdown formatting where it helps, and say so when you are unsure."

// DocumentSystemInstruction accompanies every document analysis prompt.
const DocumentSystemInstruction = "You are a professional document analyst. Provide a thorough, insightful analysis of the document content."

// DocumentPrompt is the fixed document analysis instruction.
func DocumentPrompt(mimeType string) string {
	return fmt.Sprintf(`Analyze this document (MIME type: %s) and provide a comprehensive, meaningful summary of its contents.
Focus on the key points, main ideas, and important details.
Structure your response with these sections:
1. EXECUTIVE SUMMARY: A clear overview of what the document is about
2. KEY TOPICS COVERED: The main subjects discussed
3. MAIN ARGUMENTS/POINTS: Core ideas or positions presented
4. SIGNIFICANT DETAILS: Important facts, figures, or examples
5. CONCLUSION: Overall takeaway from the document

Provide a detailed, accessible explanation without technical jargon.`, mimeType)
}
