package views

const dashboardTemplate = `<div class="wrap atf-admin">
	<h1>Above the Fold Tracker</h1>

	<div class="atf-stats">
		<div class="stat-card"><h3>{{ total | number_format }}</h3><p>Total Views</p></div>
		<div class="stat-card"><h3>{{ showing }}</h3><p>Showing Records</p></div>
		<div class="stat-card"><h3>{{ per_page }}</h3><p>Per Page</p></div>
	</div>

	<table class="atf-table">
		<thead>
			<tr><th>Date</th><th>Screen Size</th><th>Visible Links</th><th>Actions</th></tr>
		</thead>
		<tbody>
		{% if rows.size == 0 %}
			<tr><td colspan="4">No data available yet.</td></tr>
		{% else %}
		{% for row in rows %}
			<tr>
				<td>{{ row.created_at | escape }}</td>
				<td>{{ row.screen | escape }}</td>
				<td>
					<ul>
					{% for link in row.links %}
						<li><a href="{{ link.url | esc_url }}" target="_blank">{% if link.text == "" %}No text{% else %}{{ link.text | escape }}{% endif %}</a></li>
					{% endfor %}
					</ul>
				</td>
				<td><button class="button view-details" data-id="{{ row.id }}">Details</button></td>
			</tr>
		{% endfor %}
		{% endif %}
		</tbody>
	</table>
	{% if pagination.show %}

	<div class="tablenav-pages">
		{% if pagination.prev_url %}
		<a class="prev page-numbers" href="{{ pagination.prev_url | escape }}">&laquo; Previous</a>
		{% endif %}
		{% for p in pagination.pages %}
		{% if p.current %}
		<span aria-current="page" class="page-numbers current">{{ p.number }}</span>
		{% else %}
		<a class="page-numbers" href="{{ p.url | escape }}">{{ p.number }}</a>
		{% endif %}
		{% endfor %}
		{% if pagination.next_url %}
		<a class="next page-numbers" href="{{ pagination.next_url | escape }}">Next &raquo;</a>
		{% endif %}
	</div>
	{% endif %}

	<div id="atf-details-modal" class="atf-modal" style="display:none;">
		<div class="atf-modal-content">
			<span class="atf-close">&times;</span>
			<h2>View Details</h2>
			<div id="atf-modal-body"></div>
		</div>
	</div>
</div>
`

const detailTemplate = `<div class="atf-details">
	<p><strong>Date:</strong> {{ record.created_at | escape }}</p>
	<p><strong>Screen Size:</strong> {{ record.screen | escape }}</p>
	<h3>Visible Links:</h3>
	<ul>
	{% for link in record.links %}
		<li>
			<strong>#{{ forloop.index }}:</strong>
			<a href="{{ link.url | esc_url }}" target="_blank">{% if link.text == "" %}No text{% else %}{{ link.text | escape }}{% endif %}</a>
			<small>({{ link.url | esc_url }})</small>
		</li>
	{% endfor %}
	</ul>
</div>
`
