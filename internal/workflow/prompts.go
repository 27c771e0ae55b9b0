package workflow

// Prompts sent to the text-generation API. Routing and extraction demand a
// single bare value so the answers can be consumed without parsing.

const routePrompt = `You are a request router for a securities-report analysis agent.
Classify the user's latest request into exactly one of these actions and
answer with only that label, nothing else:

  analyze_report        - the user wants the already-selected report analyzed
  extract_company_name  - the user names a company whose report should be found
  ask_human             - the request is unclear and needs clarification

Previous message in this conversation (may be empty):
%s

Latest request:
%s`

const extractPrompt = `Extract the company name from the following request.
Answer with only the company name, no quotes, no explanation.

Request:
%s`

const analyzePrompt = `You are a financial analyst. Using the annual securities
report below, write an analysis covering, in order: business performance and
financial condition, governance, ESG initiatives, and stock price outlook.

Report:
%s`
