package converter

import "fmt"

const systemPrompt = `You are a database migration engineer converting Sybase ASE / T-SQL code to Oracle 19c PL/SQL.
Convert the code faithfully. Keep object names. Use Oracle data types and idioms.
Answer with ONLY a JSON object of this shape:
{
  "converted_code": "<the complete Oracle code>",
  "issues": [{"id": "1", "line_number": 3, "description": "...", "severity": "info|warning|error", "original_code": "...", "suggested_fix": "..."}],
  "data_type_mapping": [{"source_type": "DATETIME", "target_type": "DATE", "description": "..."}],
  "performance_metrics": {"improvement_percentage": 0, "performance_score": 0, "recommendations": ["..."]}
}
Report every construct you could not translate exactly as an issue.`

func userPrompt(source string) string {
	return fmt.Sprintf("Convert the following code to Oracle:\n\n```sql\n%s\n```", source)
}
