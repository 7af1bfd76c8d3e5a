package summarize

const summaryPrompt = `Du bist ein Experte für die Zusammenfassung von YouTube-Videos.

Analysiere das folgende Video und erstelle eine ausführliche deutsche Zusammenfassung.

## Video-Informationen
- **Titel:** %s
- **Kanal:** %s
- **Dauer:** %s

## Transkript
%s

## Aufgabe
Erstelle eine strukturierte Zusammenfassung mit:

1. **Kategorie** ("category"): Wähle die passendste aus:
   - "Claude Code" (Videos über Claude, Anthropic, Claude Code CLI)
   - "Coding/AI Allgemein" (Programmierung, KI, Tech, Software-Entwicklung)
   - "Brettspiele" (Tabletop, Kartenspiele, Gesellschaftsspiele)
   - "Gesundheit" (Medizin, Ernährung, Mental Health, Wellness)
   - "Sport" (Fitness, Training, allgemeiner Sport)
   - "Beziehung/Sexualität" (Partnerschaft, Dating, Intimität)
   - "Beachvolleyball" (speziell Beachvolleyball-Inhalte)
   - "Sonstige" (alles andere)

2. **Kernaussage** ("core_message"): 2-3 Sätze, die das Video auf den Punkt bringen

3. **Detaillierte Zusammenfassung** ("detailed_summary"): 3-5 Absätze mit den wichtigsten Inhalten

4. **Key Takeaways** ("key_takeaways"): Die wichtigsten Erkenntnisse als Liste (5-10 Punkte)

5. **Timestamps** ("timestamps"): Wichtige Stellen im Video als Liste von Objekten mit "time" (Format "MM:SS" oder "HH:MM:SS") und "description"

6. **Action Items** ("action_items"): Konkrete Handlungsempfehlungen (falls das Video welche enthält)

Antworte auf Deutsch, auch wenn das Transkript auf Englisch ist. Antworte ausschließlich mit einem JSON-Objekt mit genau diesen Feldern.`

const synthesisPrompt = `Du hast mehrere Teil-Zusammenfassungen eines langen Videos erhalten.
Kombiniere diese zu einer kohärenten Gesamtzusammenfassung.

## Video-Informationen
- **Titel:** %s
- **Kanal:** %s
- **Dauer:** %s

## Teil-Zusammenfassungen
%s

## Aufgabe
Erstelle eine einheitliche Zusammenfassung, die:
- Die wichtigsten Punkte aus allen Teilen kombiniert
- Redundanzen entfernt
- Eine kohärente Gesamtdarstellung bietet
- Die gleiche Struktur wie Einzelzusammenfassungen hat

Antworte auf Deutsch, ausschließlich mit einem JSON-Objekt mit den Feldern "category", "core_message", "detailed_summary", "key_takeaways", "timestamps" und "action_items".`

const categorizePrompt = `Kategorisiere dieses YouTube-Video basierend auf Titel und Beschreibung.

## Video-Informationen
- **Titel:** %s
- **Kanal:** %s
- **Beschreibung:** %s

## Kategorien
Wähle die passendste Kategorie:
- "Claude Code" (Videos über Claude, Anthropic, Claude Code CLI)
- "Coding/AI Allgemein" (Programmierung, KI, Tech)
- "Brettspiele" (Tabletop, Kartenspiele)
- "Gesundheit" (Medizin, Ernährung, Mental Health)
- "Sport" (Fitness, Training)
- "Beziehung/Sexualität" (Partnerschaft, Dating)
- "Beachvolleyball" (speziell Beachvolleyball)
- "Sonstige" (alles andere)

Antworte ausschließlich mit einem JSON-Objekt der Form {"category": "..."}.`
