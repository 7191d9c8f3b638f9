package core

// Fixed category tables. Keys are what the classifier emits; values are the
// display labels. An unknown key is displayed verbatim rather than rejected,
// so a classifier that invents a category degrades gracefully.

var expenseCategories = map[string]string{
	"groceries":     "🛒 Продукты",
	"cafe":          "☕️ Кафе и рестораны",
	"transport":     "🚕 Транспорт",
	"health":        "💊 Здоровье",
	"beauty":        "💅 Красота",
	"nails":         "💅 Ногти",
	"clothes":       "👗 Одежда",
	"home":          "🏠 Дом",
	"kids":          "👶 Дети",
	"entertainment": "🎉 Развлечения",
	"gifts":         "🎁 Подарки",
	"education":     "📚 Обучение",
	"other":         "📦 Прочее",
}

var incomeCategories = map[string]string{
	"salary":       "💼 Зарплата",
	"freelance":    "🧑‍💻 Фриланс",
	"dividends":    "📈 Дивиденды",
	"transfer":     "💸 Перевод",
	"gift":         "🎁 Подарок",
	"refund":       "↩️ Возврат",
	"other_income": "📦 Прочее",
}

// CategoryLabel returns the display label for a category key. It is total:
// keys missing from the table come back unchanged.
func CategoryLabel(t TransactionType, key string) string {
	table := expenseCategories
	if t == Income {
		table = incomeCategories
	}
	if label, ok := table[key]; ok {
		return label
	}
	return key
}
