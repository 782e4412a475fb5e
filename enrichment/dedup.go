package enrichment

// Dedupe оставляет по одной строке на каждый ИНН — ту, где заполнено больше
// всего полей. Порядок первых вхождений сохраняется; при равной заполненности
// остается более ранняя строка. Исходный список не меняется.
func Dedupe(records []*Record) []*Record {
	unique := make([]*Record, 0, len(records))
	byINN := make(map[string]int, len(records))

	for _, rec := range records {
		key := ""
		if rec.INN != nil {
			key = *rec.INN
		}

		pos, seen := byINN[key]
		if !seen {
			byINN[key] = len(unique)
			unique = append(unique, rec)
			continue
		}
		if rec.FilledCount() > unique[pos].FilledCount() {
			unique[pos] = rec
		}
	}
	return unique
}
