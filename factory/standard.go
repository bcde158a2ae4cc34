package factory

// ErasmusGridJSON returns the staff cost grid for the Researcher category,
// daily rates in EUR grouped by country area.
func ErasmusGridJSON() string {
	return `{
  "role": "Researcher",
  "rates": [
    {"nation": "Denmark",        "area": "Group 1", "daily_rate": 294},
    {"nation": "Ireland",        "area": "Group 1", "daily_rate": 294},
    {"nation": "Netherlands",    "area": "Group 1", "daily_rate": 294},
    {"nation": "Austria",        "area": "Group 1", "daily_rate": 294},
    {"nation": "Sweden",         "area": "Group 1", "daily_rate": 294},
    {"nation": "Norway",         "area": "Group 1", "daily_rate": 294},
    {"nation": "Belgium",        "area": "Group 2", "daily_rate": 241},
    {"nation": "Germany",        "area": "Group 2", "daily_rate": 241},
    {"nation": "France",         "area": "Group 2", "daily_rate": 241},
    {"nation": "Italy",          "area": "Group 2", "daily_rate": 241},
    {"nation": "Finland",        "area": "Group 2", "daily_rate": 241},
    {"nation": "Spain",          "area": "Group 3", "daily_rate": 190},
    {"nation": "Portugal",       "area": "Group 3", "daily_rate": 190},
    {"nation": "Greece",         "area": "Group 3", "daily_rate": 190},
    {"nation": "Slovenia",       "area": "Group 3", "daily_rate": 190},
    {"nation": "Poland",         "area": "Group 4", "daily_rate": 157},
    {"nation": "Romania",        "area": "Group 4", "daily_rate": 157},
    {"nation": "Bulgaria",       "area": "Group 4", "daily_rate": 157}
  ]
}`
}
