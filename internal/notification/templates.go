// internal/notification/templates.go
package notification

const eventNotificationTemplate = `Hi everyone,

Just a note to say that we're excited to have you joining us at [ADOS LA](https://ados.events/) next Friday! The event will take place from 11am to 6pm at [Mack Sennett Studios](https://maps.app.goo.gl/ZNx8KyctFqjTeVyao), with drinks after.

We'll share the schedule early next week but expect a mix of roundtables and presentations mixed with art & plain ol' hanging out.

The roundtable leaders & presenters will range from artists you've never heard of who are pushing open models in fascinating ways, to icons in the making who are doing stuff on an epic scale - though really most people joining could be speakers at a different event so we hope to shape the day to reflect this.

We've been trying to get back to people who offered to contribute, but if there's anything we missed, please reach out!

Enjoy your Halloween!

Peter

PS: if you can't make it, just [let us know](mailto:peter@omalley.io?subject=I%20can't%20make%20it%20to%20ADOS) so we can free up your spot to someone else.`

const eventReminderTemplate = `Hi there,

We're looking forward to welcoming you to [ADOS](https://ados.events/) on Friday!

We hope that the day will be a fun day with exciting but relatively light/interactive content mixed with lots of opportunities for this weird and interesting group to get to know one another. I'm attaching the [schedule here](https://drive.google.com/file/d/1Hf9v_TID4LPp2_QWIolsdKw0GVB8p0a3/view?usp=sharing).

As per the schedule, the event will run **from 11am at [Mack Sennett Studios](https://maps.app.goo.gl/PU8M0xtuXSpYVrGsJ).** We're at capacity with a couple of people waiting so if you can't make it please [let us know](mailto:peter@omalley.io?subject=I%20can't%20make%20it%20to%20ADOS).

See you on Friday!

Peter

PS: finally, you can find a short [video](https://drive.google.com/file/d/1_PrYdtXW-5m_D95ShL7VjARLw8WfrAhk/view?usp=sharing) Hannah made to hype you up for the event/moment in history that we're at.`
