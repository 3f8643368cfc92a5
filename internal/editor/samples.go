package editor

// Samples are the demonstration snippets offered by LoadSample.
var Samples = [...]string{
	`function calculateTotal(items) {
  var total = 0;
  for (var i = 0; i < items.length; i++) {
    total += items[i].price;
  }
  return total;
}`,
	`var users = [];
function addUser(name, email) {
  users.push({name: name, email: email});
}`,
	`function fetchData() {
  fetch('/api/data')
    .then(response => response.json())
    .then(data => console.log(data));
}`,
}

// SampleTitles label Samples in the same order.
var SampleTitles = [...]string{"Sum totals", "Register user", "Fetch data"}
