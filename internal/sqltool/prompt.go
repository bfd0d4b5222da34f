package sqltool

import "fmt"

func sqlPrompt(question string) string {
	return fmt.Sprintf(`You write SQLite SELECT statements for a basketball stats database.

%s

Rules:
- Output exactly one SELECT statement and nothing else.
- Never modify data.
- Use the join key whenever both tables are needed.

Question: %s

SQL:`, SchemaCard, question)
}

func repairPrompt(question, failedSQL, failure string) string {
	return fmt.Sprintf(`The previous SQL statement failed. Write a corrected SQLite SELECT statement.

%s

Question: %s

Failed SQL: %s
Error: %s

SQL:`, SchemaCard, question, failedSQL, failure)
}
